package presenter

import (
	"io"
	"time"

	"github.com/WangYihang/Domain-Funnel/pkg/domain/entity"
	"github.com/olekukonko/ts"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// ProgressBar renders a terminal bar advanced once per committed record
type ProgressBar struct {
	progress *mpb.Progress
	bar      *mpb.Bar
	last     time.Time
}

// NewProgressBar creates a bar for total records
func NewProgressBar(total int, out io.Writer) *ProgressBar {
	p := mpb.New(mpb.WithOutput(out), mpb.WithWidth(barWidth()))
	bar := p.AddBar(int64(total),
		mpb.PrependDecorators(
			decor.Name("funnel", decor.WCSyncWidth),
		),
		mpb.AppendDecorators(
			decor.CountersNoUnit("[%d / %d]", decor.WCSyncWidth),
			decor.Percentage(decor.WCSyncSpace),
			decor.OnComplete(
				decor.EwmaETA(decor.ET_STYLE_GO, 30, decor.WCSyncSpace), "done",
			),
		),
	)
	return &ProgressBar{progress: p, bar: bar, last: time.Now()}
}

// OnRecord implements application.RecordObserver
func (b *ProgressBar) OnRecord(rec *entity.DomainRecord, faulted bool) {
	now := time.Now()
	b.bar.EwmaIncrement(now.Sub(b.last))
	b.last = now
}

// Wait stops the bar and waits for the last render. Runs that end early
// abort the bar so Wait does not block.
func (b *ProgressBar) Wait() {
	if !b.bar.Completed() {
		b.bar.Abort(false)
	}
	b.progress.Wait()
}

// barWidth sizes the bar to the terminal, leaving room for the decorators
func barWidth() int {
	size, err := ts.GetSize()
	if err != nil || size.Col() <= 0 {
		return 60
	}
	return min(max(size.Col()-40, 20), 100)
}
