package svg

import (
	"fmt"

	"github.com/sakif/readme-widgets/internal/apperror"
	"github.com/sakif/readme-widgets/internal/model"
	"github.com/sakif/readme-widgets/internal/widget"
)

// Data is the upstream snapshot a data-driven widget is drawn from.
type Data struct {
	Stats     *model.AggregatedStats
	Languages *model.LanguageBytes
	Repo      *model.RepoMetadata
}

// Render dispatches cfg to its compositor. It fails only when a data-driven widget
// is handed no data, or when a compositor panics.
func Render(cfg widget.Config, data Data) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = apperror.Generation(string(cfg.Type()), fmt.Errorf("panic: %v", r))
		}
	}()

	switch c := cfg.(type) {
	case *widget.Typing:
		return Typing(c), nil
	case *widget.Wave:
		return Wave(c), nil
	case *widget.Progress:
		return Progress(c), nil
	case *widget.Stats:
		if data.Stats == nil {
			return "", missingData(cfg)
		}
		return Stats(c, *data.Stats), nil
	case *widget.LanguageChart:
		if data.Languages == nil {
			return "", missingData(cfg)
		}
		return LanguageChart(c, data.Languages.Bytes), nil
	case *widget.Repo:
		if data.Repo == nil {
			return "", missingData(cfg)
		}
		return Repo(c, *data.Repo), nil
	}
	return "", apperror.Generation(string(cfg.Type()), fmt.Errorf("no compositor for %T", cfg))
}

func missingData(cfg widget.Config) error {
	return apperror.Generation(string(cfg.Type()), fmt.Errorf("no upstream data"))
}
