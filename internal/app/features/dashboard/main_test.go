package dashboard_test

import (
	"fmt"
	"os"
	"testing"

	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/meeralabs/portal/internal/app/resources"
	"go.uber.org/zap"
)

// TestMain boots the real template engine so page tests assert on rendered HTML.
func TestMain(m *testing.M) {
	logger := zap.NewNop()
	resources.LoadSharedTemplates()
	eng := templates.New(false)
	if err := eng.Boot(logger); err != nil {
		fmt.Fprintf(os.Stderr, "template boot: %v\n", err)
		os.Exit(1)
	}
	templates.UseEngine(eng, logger)
	os.Exit(m.Run())
}
