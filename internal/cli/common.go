package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roboco-io/mdimg/internal/config"
	"github.com/roboco-io/mdimg/internal/dimension"
	"github.com/roboco-io/mdimg/internal/document"
	"github.com/roboco-io/mdimg/internal/ir"
	"github.com/roboco-io/mdimg/internal/resource"
)

// DefaultResourceDirName is used next to the document when no resource
// directory is configured.
const DefaultResourceDirName = "_resources"

func readDocument(path string) (*document.Buffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("파일을 찾을 수 없습니다: %s", path)
		}
		return nil, fmt.Errorf("파일 읽기 실패: %w", err)
	}
	return document.NewBuffer(string(data)), nil
}

// cursorPosition converts 1-based line and column flags.
func cursorPosition(line, col int) (ir.Position, error) {
	if line < 1 || col < 1 {
		return ir.Position{}, fmt.Errorf("줄과 열은 1 이상이어야 합니다: %d:%d", line, col)
	}
	return ir.Position{Line: line - 1, Ch: col - 1}, nil
}

// resourceDir picks the flag value, then the configured directory, then
// _resources next to docPath.
func resourceDir(flagDir, docPath string, cfg *config.Config) string {
	switch {
	case flagDir != "":
		return flagDir
	case cfg.Resources.Dir != "":
		return cfg.Resources.Dir
	case docPath != "":
		return filepath.Join(filepath.Dir(docPath), DefaultResourceDirName)
	default:
		return DefaultResourceDirName
	}
}

// openResources opens dir. A missing directory yields an empty store so
// documents with only external images still work.
func openResources(dir string, log *zap.Logger) (resource.Store, *resource.DirStore) {
	store, err := resource.Open(dir, log)
	if err != nil {
		log.Debug("resource directory unavailable", zap.String("dir", dir), zap.Error(err))
		return resource.Empty, nil
	}
	return store, store
}

func newResolver(store resource.Store, cfg *config.Config, log *zap.Logger) *dimension.Resolver {
	return dimension.NewDefaultResolver(store, probeConfig(cfg), log)
}

func probeConfig(cfg *config.Config) dimension.ProbeConfig {
	return dimension.ProbeConfig{
		Timeout:   cfg.ProbeTimeout(),
		UserAgent: cfg.Probe.UserAgent,
	}
}

// writeOutput writes text to path, or to stdout when path is empty or "-".
func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("파일 저장 실패: %w", err)
	}
	return nil
}
