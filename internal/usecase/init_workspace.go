package usecase

import (
	"path/filepath"

	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/infra/logger"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/ports"
)

// InitResult describes the workspace Execute laid out.
type InitResult struct {
	Root string
	// Existing is true when root already held a workspace.
	Existing bool
}

type InitWorkspace struct {
	initializer ports.WorkspaceInitializer
	locator     ports.WorkspaceLocator
}

func NewInitWorkspace(initializer ports.WorkspaceInitializer, locator ports.WorkspaceLocator) *InitWorkspace {
	return &InitWorkspace{initializer: initializer, locator: locator}
}

func (uc *InitWorkspace) Execute(root string, force bool) (InitResult, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return InitResult{}, err
	}

	res := InitResult{Root: abs}
	if uc.locator != nil {
		if found, err := uc.locator.FindRoot(abs); err == nil && found == abs {
			res.Existing = true
		}
	}
	if err := uc.initializer.Init(abs, force); err != nil {
		return InitResult{}, err
	}
	logger.L().Info("workspace.init", "root", abs, "existing", res.Existing, "force", force)
	return res, nil
}
