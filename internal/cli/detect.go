package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roboco-io/mdimg/internal/ir"
	"github.com/roboco-io/mdimg/internal/locator"
)

var (
	detectLine        int
	detectCol         int
	detectMeasure     bool
	detectResources   string
	detectOutput      string
	detectPrettyPrint bool
)

// errNoImage is returned when the cursor is not on an image.
var errNoImage = errors.New("커서 위치에 이미지가 없습니다")

var detectCmd = &cobra.Command{
	Use:   "detect <file>",
	Short: "커서 위치의 이미지 정보 추출",
	Long: `지정한 줄과 열에 있는 이미지 구문을 찾아 JSON으로 출력합니다.

출력에는 구문 종류, 소스, 대체 텍스트, 제목과 문서 내 범위가 포함됩니다.
--measure를 사용하면 이미지 크기도 함께 확인합니다.

예시:
  mdimg detect note.md --line 3 --col 10
  mdimg detect note.md --line 3 --col 10 --measure
  mdimg detect note.md --line 3 --col 10 -o image.json`,
	Args: cobra.ExactArgs(1),
	RunE: runDetect,
}

func init() {
	detectCmd.Flags().IntVarP(&detectLine, "line", "l", 1, "커서 줄 번호 (1부터)")
	detectCmd.Flags().IntVarP(&detectCol, "col", "c", 1, "커서 열 번호 (1부터, UTF-16 단위)")
	detectCmd.Flags().BoolVar(&detectMeasure, "measure", false, "이미지 크기 확인")
	detectCmd.Flags().StringVar(&detectResources, "resources", "", "리소스 디렉토리 (기본: 문서 옆 _resources)")
	detectCmd.Flags().StringVarP(&detectOutput, "output", "o", "", "출력 파일 경로 (기본: stdout)")
	detectCmd.Flags().BoolVar(&detectPrettyPrint, "pretty", true, "JSON 들여쓰기 적용")

	rootCmd.AddCommand(detectCmd)
}

// detectResult is the JSON shape printed by detect.
type detectResult struct {
	Reference  ir.ImageReference   `json:"reference"`
	Range      ir.TextRange        `json:"range"`
	Text       string              `json:"text"`
	Dimensions *ir.PixelDimensions `json:"dimensions,omitempty"`
	Strategy   string              `json:"strategy,omitempty"`
	Fallback   bool                `json:"fallback,omitempty"`
}

func runDetect(cmd *cobra.Command, args []string) error {
	inputPath := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	doc, err := readDocument(inputPath)
	if err != nil {
		return err
	}
	pos, err := cursorPosition(detectLine, detectCol)
	if err != nil {
		return err
	}

	det := locator.New(log).LocateAt(doc, pos)
	if det == nil {
		return errNoImage
	}

	result := detectResult{
		Reference: det.Ref,
		Range:     det.Range,
		Text:      det.Text,
	}

	if detectMeasure {
		store, _ := openResources(resourceDir(detectResources, inputPath, cfg), log)
		res, err := newResolver(store, cfg, log).Resolve(commandContext(cmd), &det.Ref)
		if err != nil {
			return fmt.Errorf("이미지 크기 확인 실패: %w", err)
		}
		result.Dimensions = &res.Dimensions
		result.Strategy = res.Strategy
		result.Fallback = res.Fallback
	}

	var data []byte
	if detectPrettyPrint {
		data, err = json.MarshalIndent(result, "", "  ")
	} else {
		data, err = json.Marshal(result)
	}
	if err != nil {
		return fmt.Errorf("JSON 변환 실패: %w", err)
	}

	return writeOutput(cmd, detectOutput, append(data, '\n'))
}
