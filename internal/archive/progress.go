package archive

// Stage names reported to Progress and attached to log records.
const (
	StageDiscover = "discover"
	StageFetch    = "fetch"
	StageRender   = "render"
	StageLinks    = "links"
	StageImages   = "images"
	StageAssemble = "assemble"
)

// Progress receives coarse progress updates. Step may be called from several
// goroutines at once.
type Progress interface {
	// Begin starts a stage with total steps, or -1 when the total is unknown.
	Begin(stage string, total int)
	Step()
	End()
}

type nopProgress struct{}

func (nopProgress) Begin(string, int) {}
func (nopProgress) Step()             {}
func (nopProgress) End()              {}
