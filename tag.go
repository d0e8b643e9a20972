package watermark

import (
	"encoding/base64"
	"math/rand/v2"
	"strconv"
	"time"
)

// newTag returns an identity tag of the form
// base64("watermark")-<unix ms>-<random below 1e8>.
func newTag() string {
	return base64.StdEncoding.EncodeToString([]byte("watermark")) +
		"-" + strconv.FormatInt(time.Now().UnixMilli(), 10) +
		"-" + strconv.Itoa(rand.IntN(1e8))
}
