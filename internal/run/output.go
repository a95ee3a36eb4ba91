package run

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const timestampLayout = "20060102_150405"

// Sanitize makes a string safe for use in a file name: every run of
// non-alphanumeric characters becomes a single underscore, and leading and
// trailing underscores are trimmed.
func Sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	lastUnderscore := false
	for _, r := range s {
		alnum := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if alnum {
			b.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	return strings.Trim(b.String(), "_")
}

// OutputName builds the output file name for one enriched section:
// <state>_<tag>_<timestamp>.<ext>, with an _incomplete marker before the
// extension when the section did not finish cleanly.
func OutputName(state, tag, ext string, at time.Time, incomplete bool) string {
	name := fmt.Sprintf("%s_%s_%s", Sanitize(state), Sanitize(tag), at.Format(timestampLayout))
	if incomplete {
		name += "_incomplete"
	}
	return name + ext
}

// AttachRunLog tees the global logger into a per-run log file next to the
// output files. The returned function detaches the tee and closes the file.
func AttachRunLog(path string) (func(), error) {
	f, err := os.OpenFile(filepath.Clean(path), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, eris.Wrap(err, "run: open log file")
	}

	encoder := zapcore.NewConsoleEncoder(zap.NewProductionEncoderConfig())
	fileCore := zapcore.NewCore(encoder, zapcore.AddSync(f), zapcore.InfoLevel)

	prev := zap.L()
	teed := zap.New(zapcore.NewTee(prev.Core(), fileCore))
	restore := zap.ReplaceGlobals(teed)

	return func() {
		restore()
		_ = f.Close()
	}, nil
}
