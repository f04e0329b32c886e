package download

import (
	"io"
	"sync"

	"github.com/cheggaaa/pb/v3"
)

// Bar renders download progress as a terminal progress bar.
type Bar struct {
	out  io.Writer
	once sync.Once
	bar  *pb.ProgressBar
}

// NewBar creates a progress bar writing to out. It is drawn on the first update.
func NewBar(out io.Writer) *Bar {
	return &Bar{out: out}
}

// Update implements Progress.
func (b *Bar) Update(current, total int64) {
	b.once.Do(func() {
		b.bar = pb.New64(total)
		b.bar.Set(pb.Bytes, true)
		b.bar.SetWriter(b.out)
		b.bar.Start()
	})
	if total > 0 && b.bar.Total() != total {
		b.bar.SetTotal(total)
	}
	b.bar.SetCurrent(current)
}

// Done implements Progress.
func (b *Bar) Done() {
	if b.bar != nil {
		b.bar.Finish()
	}
}
