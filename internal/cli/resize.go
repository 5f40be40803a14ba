package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roboco-io/mdimg/internal/config"
	"github.com/roboco-io/mdimg/internal/dialog"
	"github.com/roboco-io/mdimg/internal/ir"
	"github.com/roboco-io/mdimg/internal/logging"
	"github.com/roboco-io/mdimg/internal/notify"
	"github.com/roboco-io/mdimg/internal/resize"
)

var (
	resizeLine        int
	resizeCol         int
	resizeTo          string
	resizePercent     float64
	resizeWidth       int
	resizeHeight      int
	resizeAlt         string
	resizeTitle       string
	resizeStyle       string
	resizeInteractive bool
	resizeResources   string
	resizeDryRun      bool
	resizeOutput      string
	resizeInPlace     bool
	resizeQuiet       bool
)

var resizeCmd = &cobra.Command{
	Use:   "resize <file>",
	Short: "커서 위치의 이미지 구문을 다시 작성",
	Long: `지정한 줄과 열에 있는 이미지를 찾아 원본 크기를 확인한 뒤
선택한 구문(Markdown 또는 HTML)과 크기로 다시 작성합니다.

크기 지정:
  --percent P           원본 대비 비율 (HTML 출력)
  --width W --height H  픽셀 크기, 한쪽만 주면 비율 유지
  (둘 다 없으면 설정의 resize.default_mode를 따름)

Markdown 출력에는 크기 정보가 포함되지 않습니다.
리소스 크기를 알 수 없으면 400x300을 원본 크기로 사용합니다.

예시:
  mdimg resize note.md --line 3 --col 10 --percent 50
  mdimg resize note.md --line 3 --col 10 --width 400 -w
  mdimg resize note.md --line 3 --col 10 --to markdown --alt "로고"
  mdimg resize note.md --line 3 --col 10 --interactive`,
	Args: cobra.ExactArgs(1),
	RunE: runResize,
}

func init() {
	resizeCmd.Flags().IntVarP(&resizeLine, "line", "l", 1, "커서 줄 번호 (1부터)")
	resizeCmd.Flags().IntVarP(&resizeCol, "col", "c", 1, "커서 열 번호 (1부터, UTF-16 단위)")
	resizeCmd.Flags().StringVar(&resizeTo, "to", "html", "출력 구문 (markdown, html)")
	resizeCmd.Flags().Float64Var(&resizePercent, "percent", 0, "크기 비율 (%)")
	resizeCmd.Flags().IntVar(&resizeWidth, "width", 0, "너비 (px)")
	resizeCmd.Flags().IntVar(&resizeHeight, "height", 0, "높이 (px)")
	resizeCmd.Flags().StringVar(&resizeAlt, "alt", "", "대체 텍스트 (기본: 기존 값)")
	resizeCmd.Flags().StringVar(&resizeTitle, "title", "", "제목 (기본: 기존 값)")
	resizeCmd.Flags().StringVar(&resizeStyle, "style", "", "HTML 크기 속성 (width, width_height)")
	resizeCmd.Flags().BoolVarP(&resizeInteractive, "interactive", "i", false, "터미널에서 옵션 입력")
	resizeCmd.Flags().StringVar(&resizeResources, "resources", "", "리소스 디렉토리 (기본: 문서 옆 _resources)")
	resizeCmd.Flags().BoolVar(&resizeDryRun, "dry-run", false, "문서를 바꾸지 않고 새 구문만 출력")
	resizeCmd.Flags().StringVarP(&resizeOutput, "output", "o", "", "출력 파일 경로 (기본: stdout)")
	resizeCmd.Flags().BoolVarP(&resizeInPlace, "write", "w", false, "입력 파일에 덮어쓰기")
	resizeCmd.Flags().BoolVarP(&resizeQuiet, "quiet", "q", false, "알림을 로그로만 기록")

	rootCmd.AddCommand(resizeCmd)
}

// resizeOptions is the non-interactive answer built from flags.
type resizeOptions struct {
	to      string
	percent float64
	width   int
	height  int
	alt     *string // nil keeps the detected value
	title   *string
}

func (o resizeOptions) choice(req dialog.Request) (ir.ResizeChoice, error) {
	kind, err := ir.ParseSyntaxKind(o.to)
	if err != nil {
		return ir.ResizeChoice{}, err
	}
	if o.percent < 0 || o.width < 0 || o.height < 0 {
		return ir.ResizeChoice{}, fmt.Errorf("크기 값은 음수일 수 없습니다")
	}

	c := ir.ResizeChoice{
		TargetKind: kind,
		AltText:    req.Ref.AltText,
		Title:      req.Ref.Title,
	}
	if o.alt != nil {
		c.AltText = *o.alt
	}
	if o.title != nil {
		c.Title = *o.title
	}

	switch {
	case o.width > 0 || o.height > 0:
		c.Mode = ir.ModeAbsolute
		c.Width = o.width
		c.Height = o.height
	case o.percent > 0:
		c.Mode = ir.ModePercentage
		c.Percentage = o.percent
	case req.DefaultMode == ir.ModeAbsolute:
		c.Mode = ir.ModeAbsolute
	default:
		c.Mode = ir.ModePercentage
		c.Percentage = req.DefaultPercentage
	}
	return c, nil
}

func runResize(cmd *cobra.Command, args []string) error {
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
	pos, err := cursorPosition(resizeLine, resizeCol)
	if err != nil {
		return err
	}
	doc.SetCursor(pos)

	style := cfg.HTMLStyle()
	if resizeStyle != "" {
		if style, err = ir.ParseHTMLStyle(resizeStyle); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	store, dir := openResources(resourceDir(resizeResources, inputPath, cfg), log)
	if dir != nil && resizeInteractive {
		// resources may be added while the user answers
		log.Debug("watching resources", zap.String("dir", dir.Dir()))
		go func() {
			if err := dir.Watch(ctx); err != nil {
				log.Warn("resource watch stopped", zap.Error(err))
			}
		}()
	}

	var prompter dialog.Prompter
	if resizeInteractive {
		prompter = dialog.NewTerminal(cmd.InOrStdin(), cmd.ErrOrStderr())
	} else {
		opts := resizeOptions{
			to:      resizeTo,
			percent: resizePercent,
			width:   resizeWidth,
			height:  resizeHeight,
		}
		if cmd.Flags().Changed("alt") {
			opts.alt = &resizeAlt
		}
		if cmd.Flags().Changed("title") {
			opts.title = &resizeTitle
		}
		prompter = dialog.Func(func(ctx context.Context, req dialog.Request) (ir.ResizeChoice, bool, error) {
			c, err := opts.choice(req)
			if err != nil {
				return ir.ResizeChoice{}, false, err
			}
			return c, true, nil
		})
	}

	quiet := resizeQuiet || config.GetEnvBool("MDIMG_QUIET")
	var notifier notify.Notifier
	switch {
	case quiet:
		notifier = notify.NewLogger(log)
	case cfg.Log.Format == string(logging.FormatJSON):
		// structured logs keep a record of what the user was told
		notifier = notify.Multi{notify.NewWriter(cmd.ErrOrStderr()), notify.NewLogger(log)}
	default:
		notifier = notify.NewWriter(cmd.ErrOrStderr())
	}

	svc := resize.NewService(newResolver(store, cfg, log), prompter, notifier, nil, resize.Options{
		Style:             style,
		DefaultMode:       cfg.ResizeMode(),
		DefaultPercentage: cfg.Resize.DefaultPercentage,
		DryRun:            resizeDryRun,
	}, log)

	res, err := svc.Run(ctx, doc)
	if err != nil {
		return err
	}
	if res.Status != resize.StatusApplied {
		return nil
	}

	if resizeDryRun {
		return writeOutput(cmd, "", []byte(res.Replacement+"\n"))
	}

	out := resizeOutput
	if resizeInPlace {
		out = inputPath
	}
	if err := writeOutput(cmd, out, []byte(doc.Text())); err != nil {
		return err
	}
	if out != "" && out != "-" && !quiet {
		fmt.Fprintf(cmd.ErrOrStderr(), "변경 완료: %s\n", out)
	}
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
