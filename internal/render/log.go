package render

import (
	"log"
	"strings"

	"github.com/DB8LE/sonde-hunter-pi/internal/fusion"
)

// LogRenderer writes each frame to the process log instead of a
// panel. Useful for headless development and as the fallback backend.
type LogRenderer struct{}

func (LogRenderer) Draw(f fusion.Frame) error {
	tf := Build(f)
	if tf.Geo != "" {
		log.Printf("render: [qr] %s | %s %s", tf.Geo, tf.Status, tf.Clock)
		return nil
	}
	parts := make([]string, 0, 3)
	if tf.Head != "" {
		parts = append(parts, strings.ReplaceAll(tf.Head, "\n", " / "))
	}
	if tf.Body != "" {
		parts = append(parts, strings.ReplaceAll(tf.Body, "\n", " / "))
	}
	parts = append(parts, tf.Status+" "+tf.Clock)
	log.Printf("render: %s", strings.Join(parts, " | "))
	return nil
}
