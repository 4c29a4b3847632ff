package util

import (
	"fmt"
	"io"
	"os"

	"github.com/pgschema/supaextract/internal/logger"
)

// WriteOutput writes content to path, or to w when path is empty or "-".
func WriteOutput(w io.Writer, path, content string) error {
	if path == "" || path == "-" {
		_, err := io.WriteString(w, content)
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	logger.Get().Debug("Wrote file", "path", path, "bytes", len(content))
	return nil
}
