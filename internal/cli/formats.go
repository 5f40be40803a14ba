package cli

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roboco-io/mdimg/internal/dimension"
	"github.com/roboco-io/mdimg/internal/logging"
	"github.com/roboco-io/mdimg/internal/resource"
)

type formatInfo struct {
	Name        string
	Extensions  []string
	Sample      []byte
	Description string
}

// formats lists the image formats mdimg measures. Sample holds the magic
// bytes the decoder registers under.
var formats = []formatInfo{
	{Name: "png", Extensions: []string{".png"}, Sample: []byte("\x89PNG\r\n\x1a\n"), Description: "Portable Network Graphics"},
	{Name: "jpeg", Extensions: []string{".jpg", ".jpeg"}, Sample: []byte("\xff\xd8"), Description: "JPEG"},
	{Name: "gif", Extensions: []string{".gif"}, Sample: []byte("GIF89a"), Description: "Graphics Interchange Format"},
	{Name: "webp", Extensions: []string{".webp"}, Sample: []byte("RIFF\x00\x00\x00\x00WEBPVP8"), Description: "WebP"},
	{Name: "bmp", Extensions: []string{".bmp"}, Sample: []byte("BM\x00\x00\x00\x00\x00\x00\x00\x00"), Description: "Windows Bitmap"},
	{Name: "tiff", Extensions: []string{".tif", ".tiff"}, Sample: []byte("II*\x00"), Description: "Tagged Image File Format"},
}

var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "지원하는 이미지 형식과 크기 확인 전략 목록",
	Long: `크기를 확인할 수 있는 이미지 형식과 리소스 이미지에 적용되는
크기 확인 전략의 순서를 표시합니다.

리소스 이미지는 전략을 순서대로 시도하고 모두 실패하면 400x300을 사용합니다.
외부 이미지는 http/https로만 불러오며 실패하면 오류를 반환합니다.`,
	Run: runFormats,
}

func init() {
	rootCmd.AddCommand(formatsCmd)
}

func runFormats(cmd *cobra.Command, args []string) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "형식\t확장자\t상태\t설명")
	fmt.Fprintln(w, "----\t-----\t----\t----")
	for _, f := range formats {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			f.Name, strings.Join(f.Extensions, ", "), checkFormatStatus(f), f.Description)
	}
	w.Flush()

	fmt.Fprintln(cmd.OutOrStdout())
	printStrategies(cmd.OutOrStdout())
}

func printStrategies(out io.Writer) {
	r := dimension.NewDefaultResolver(resource.Empty, dimension.ProbeConfig{}, logging.Nop())

	fmt.Fprintln(out, "리소스 크기 확인 순서:")
	for i, name := range r.Strategies() {
		fmt.Fprintf(out, "  %d. %s\n", i+1, name)
	}
	fmt.Fprintf(out, "  %d. %s (%s)\n", len(r.Strategies())+1, dimension.FallbackStrategy, dimension.FallbackDimensions)
}

// checkFormatStatus reports whether a decoder claims the format's magic bytes.
func checkFormatStatus(f formatInfo) string {
	_, name, _ := image.DecodeConfig(bytes.NewReader(f.Sample))
	if name == f.Name {
		return "✓ 지원"
	}
	return "✗ 미지원"
}
