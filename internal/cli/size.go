package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roboco-io/mdimg/internal/dimension"
	"github.com/roboco-io/mdimg/internal/ir"
	"github.com/roboco-io/mdimg/internal/raster"
	"github.com/roboco-io/mdimg/internal/syntax"
)

var (
	sizeResources string
	sizePayload   string

	exportResources string
	exportOutput    string
)

var sizeCmd = &cobra.Command{
	Use:   "size [<id|url>]",
	Short: "이미지 원본 크기 확인",
	Long: `리소스 ID(:/<id> 또는 <id>) 또는 http/https URL의 이미지 크기를 WxH 형식으로 출력합니다.

리소스 크기를 알 수 없으면 기본값 400x300을 출력하고 경고를 표시합니다.
--payload를 사용하면 JSON 바이트 데이터(base64 문자열, 숫자 배열,
"0".."n-1" 키 객체)에서 크기를 읽습니다.

예시:
  mdimg size 0123456789abcdef0123456789abcdef
  mdimg size https://example.com/image.png
  mdimg size --payload resource.json`,
	Args: cobra.RangeArgs(0, 1),
	RunE: runSize,
}

var exportCmd = &cobra.Command{
	Use:   "export <id|url>",
	Short: "이미지를 PNG로 내보내기",
	Long: `리소스 또는 외부 이미지를 PNG로 변환하여 저장합니다.

지원 입력 형식: png, jpeg, gif, webp, bmp, tiff

예시:
  mdimg export 0123456789abcdef0123456789abcdef -o image.png
  mdimg export https://example.com/image.webp -o image.png`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	sizeCmd.Flags().StringVar(&sizeResources, "resources", "", "리소스 디렉토리 (기본: ./_resources)")
	sizeCmd.Flags().StringVar(&sizePayload, "payload", "", "JSON 바이트 데이터 파일")

	exportCmd.Flags().StringVar(&exportResources, "resources", "", "리소스 디렉토리 (기본: ./_resources)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "출력 파일 경로 (기본: stdout)")

	rootCmd.AddCommand(sizeCmd)
	rootCmd.AddCommand(exportCmd)
}

// parseSource accepts a bare resource id, a :/id reference or a URL.
func parseSource(arg string) ir.ImageReference {
	if ir.IsResourceID(arg) {
		return ir.ImageReference{Source: arg, SourceKind: ir.SourceResource}
	}
	src, kind := syntax.ClassifySource(arg)
	return ir.ImageReference{Source: src, SourceKind: kind}
}

func runSize(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx := commandContext(cmd)

	if sizePayload != "" {
		raw, err := os.ReadFile(sizePayload)
		if err != nil {
			return fmt.Errorf("파일 읽기 실패: %w", err)
		}
		p, err := dimension.DecodePayload(json.RawMessage(raw))
		if err != nil {
			return fmt.Errorf("데이터 형식 오류: %w", err)
		}
		d, err := dimension.NewDataURIStrategy(dimension.StaticPayload{Value: p}, cfg.ProbeTimeout()).Measure(ctx, sizePayload)
		if err != nil {
			return fmt.Errorf("이미지 크기 확인 실패: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), d)
		return nil
	}

	if len(args) == 0 {
		return fmt.Errorf("리소스 ID, URL 또는 --payload가 필요합니다")
	}

	ref := parseSource(args[0])
	store, _ := openResources(resourceDir(sizeResources, "", cfg), log)
	res, err := newResolver(store, cfg, log).Resolve(ctx, &ref)
	if err != nil {
		return fmt.Errorf("이미지 크기 확인 실패: %w", err)
	}
	if res.Fallback {
		fmt.Fprintf(cmd.ErrOrStderr(), "경고: 크기를 확인할 수 없어 기본값을 사용합니다 (%v)\n", res.Cause)
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.Dimensions)
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx := commandContext(cmd)
	ref := parseSource(args[0])

	var data []byte
	if ref.SourceKind == ir.SourceResource {
		store, _ := openResources(resourceDir(exportResources, "", cfg), log)
		data, err = store.Bytes(ctx, ref.Source)
	} else {
		data, err = dimension.NewExternalProbe(probeConfig(cfg), log).Fetch(ctx, ref.Source)
	}
	if err != nil {
		return fmt.Errorf("이미지 읽기 실패: %w", err)
	}

	var buf bytes.Buffer
	bounds, err := raster.EncodePNG(&buf, data)
	if err != nil {
		return fmt.Errorf("PNG 변환 실패: %w", err)
	}
	if err := writeOutput(cmd, exportOutput, buf.Bytes()); err != nil {
		return err
	}
	if exportOutput != "" && exportOutput != "-" {
		fmt.Fprintf(cmd.ErrOrStderr(), "내보내기 완료: %s (%dx%d)\n", exportOutput, bounds.Dx(), bounds.Dy())
	}
	return nil
}
