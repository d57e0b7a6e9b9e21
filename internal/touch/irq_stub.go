//go:build !linux

package touch

import (
	"fmt"
	"io"
	"time"
)

func requestIRQ(pin int, onPress, onRelease func(time.Time)) (io.Closer, error) {
	return nil, fmt.Errorf("touch interrupts require the linux gpio character device")
}
