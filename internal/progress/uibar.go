package progress

import (
	"fmt"
	"sync"

	"github.com/gosuri/uiprogress"
)

// UIBar drives a terminal progress bar via uiprogress, the same library
// and Start/AddBar/Incr/Stop shape cmd/fill.go used for its pump loop,
// generalized from a fixed 100-unit bar to one sized by Total.
type UIBar struct {
	mu   sync.Mutex
	bar  *uiprogress.Bar
	done int
}

func NewUIBar() *UIBar {
	uiprogress.Start()
	return &UIBar{}
}

func (u *UIBar) Total(n int) {
	if n <= 0 {
		n = 1
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.bar = uiprogress.AddBar(n).AppendCompleted().PrependElapsed()
	u.bar.PrependFunc(func(b *uiprogress.Bar) string {
		return fmt.Sprintf("%d/%d tables", u.done, n)
	})
}

func (u *UIBar) TableStarted(table string) {}

func (u *UIBar) TableDone(table string, err error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.done++
	if u.bar != nil {
		u.bar.Incr()
	}
}

// Stop halts uiprogress's render loop. Callers must invoke it once,
// after the last TableDone.
func (u *UIBar) Stop() {
	uiprogress.Stop()
}
