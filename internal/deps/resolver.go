package deps

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"storyreel/config"
	"storyreel/internal/storage"
	"storyreel/log"

	"go.uber.org/zap"
)

type DependencyTier string

const (
	DependencyTierMust     DependencyTier = "must"
	DependencyTierOptional DependencyTier = "optional"
)

type DependencyStatus string

const (
	DependencyStatusOK      DependencyStatus = "ok"
	DependencyStatusMissing DependencyStatus = "missing"
	DependencyStatusError   DependencyStatus = "error"
)

type DependencySource string

const (
	DependencySourceConfigured DependencySource = "configured"
	DependencySourceLookPath   DependencySource = "lookpath"
)

type DependencySpec struct {
	ID             string
	Name           string
	Command        string
	Tier           DependencyTier
	ConfiguredPath string
	Hint           string
}

type DependencyState struct {
	DependencySpec
	ResolvedPath string
	Status       DependencyStatus
	Source       DependencySource
	Error        string
}

type PathResolver struct {
	LookPath func(file string) (string, error)
	AbsPath  func(path string) (string, error)
	Stat     func(name string) (os.FileInfo, error)
}

func NewPathResolver() PathResolver {
	return PathResolver{
		LookPath: exec.LookPath,
		AbsPath:  filepath.Abs,
		Stat:     os.Stat,
	}
}

func (r PathResolver) Resolve(spec DependencySpec) DependencyState {
	state := DependencyState{DependencySpec: spec}
	configured := strings.TrimSpace(spec.ConfiguredPath)

	if configured != "" {
		state.Source = DependencySourceConfigured
		resolvedPath, err := r.resolveConfiguredPath(configured)
		if err == nil {
			state.Status = DependencyStatusOK
			state.ResolvedPath = resolvedPath
			return state
		}

		if absPath, absErr := r.AbsPath(configured); absErr == nil {
			state.ResolvedPath = absPath
		} else {
			state.ResolvedPath = configured
		}
		state.Error = err.Error()
		if isMissingPathError(err) {
			state.Status = DependencyStatusMissing
		} else {
			state.Status = DependencyStatusError
		}
		return state
	}

	state.Source = DependencySourceLookPath
	resolvedPath, err := r.LookPath(spec.Command)
	if err == nil {
		state.Status = DependencyStatusOK
		state.ResolvedPath = resolvedPath
		return state
	}

	state.Error = err.Error()
	if isMissingPathError(err) {
		state.Status = DependencyStatusMissing
		return state
	}
	state.Status = DependencyStatusError
	return state
}

func (r PathResolver) resolveConfiguredPath(configuredPath string) (string, error) {
	if resolvedPath, err := r.LookPath(configuredPath); err == nil {
		return resolvedPath, nil
	}

	absPath, err := r.AbsPath(configuredPath)
	if err != nil {
		return "", err
	}
	if _, err = r.Stat(absPath); err != nil {
		return "", err
	}
	return absPath, nil
}

func ResolveDependencyStates(specs []DependencySpec, resolver PathResolver) []DependencyState {
	resolved := make([]DependencyState, 0, len(specs))
	for _, spec := range specs {
		resolved = append(resolved, resolver.Resolve(spec))
	}
	return resolved
}

func ResolveDependencyInventory(ffprobePath string) []DependencyState {
	specs := BuildDependencyInventory(ffprobePath)
	return ResolveDependencyStates(specs, NewPathResolver())
}

func BuildDependencyInventory(ffprobePath string) []DependencySpec {
	return []DependencySpec{
		{
			ID:             DependencyIDFFprobe,
			Name:           "ffprobe",
			Command:        "ffprobe",
			Tier:           DependencyTierMust,
			ConfiguredPath: ffprobePath,
			Hint:           "Required to read the duration of uploaded narration audio.",
		},
	}
}

// CheckDependency resolves the external tools the server needs and publishes
// the results process-wide. On Windows a missing ffprobe is installed
// automatically; everywhere else a missing must-have fails startup.
func CheckDependency() error {
	states := ResolveDependencyInventory(config.Conf.Media.FfprobePath)
	log.GetLogger().Info(FormatDependencyReport(states))

	for _, state := range states {
		if state.Status == DependencyStatusOK {
			publishResolvedPath(state.ID, state.ResolvedPath)
			continue
		}
		if state.Tier != DependencyTierMust {
			continue
		}

		if !CanAutoInstallDependency(state.ID) {
			return fmt.Errorf("missing required dependency %q: %s", state.Name, state.Hint)
		}

		log.GetLogger().Info("attempting automatic dependency install", zap.String("dependency", state.ID))
		if err := InstallDependency(state.ID, logInstallProgress); err != nil {
			return fmt.Errorf("automatic install of %q failed: %w", state.Name, err)
		}

		reresolved := NewPathResolver().Resolve(DependencySpec{
			ID:             state.ID,
			Name:           state.Name,
			Command:        state.Command,
			Tier:           state.Tier,
			ConfiguredPath: getResolvedPath(state.ID),
		})
		if reresolved.Status != DependencyStatusOK {
			return fmt.Errorf("dependency %q still unavailable after install", state.Name)
		}
		publishResolvedPath(state.ID, reresolved.ResolvedPath)
	}
	return nil
}

func publishResolvedPath(dependencyID, path string) {
	if normalizeDependencyID(dependencyID) == DependencyIDFFprobe {
		storage.FfprobePath = path
	}
}

func getResolvedPath(dependencyID string) string {
	if normalizeDependencyID(dependencyID) == DependencyIDFFprobe {
		return storage.FfprobePath
	}
	return ""
}

func logInstallProgress(progress InstallProgress) {
	log.GetLogger().Info("dependency install progress",
		zap.String("dependency", progress.DependencyID),
		zap.String("stage", progress.Stage),
		zap.Float64("percent", progress.Percent))
}

func FormatDependencyReport(states []DependencyState) string {
	if len(states) == 0 {
		return "No dependencies to diagnose."
	}

	var builder strings.Builder
	builder.WriteString("Dependency status")

	for _, state := range states {
		resolvedPath := strings.TrimSpace(state.ResolvedPath)
		if resolvedPath == "" {
			resolvedPath = "unknown"
		}

		source := strings.TrimSpace(string(state.Source))
		if source == "" {
			source = "n/a"
		}

		builder.WriteString("\n")
		builder.WriteString(fmt.Sprintf("- %s [%s]: %s | path=%s | source=%s", state.Name, strings.ToUpper(string(state.Tier)), state.Status, resolvedPath, source))
		if state.Error != "" {
			builder.WriteString("\n")
			builder.WriteString("  error: ")
			builder.WriteString(state.Error)
		}
		if state.Hint != "" {
			builder.WriteString("\n")
			builder.WriteString("  hint: ")
			builder.WriteString(state.Hint)
		}
	}

	return builder.String()
}

func isMissingPathError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, os.ErrNotExist) || errors.Is(err, exec.ErrNotFound) {
		return true
	}

	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		if errors.Is(pathErr.Err, os.ErrNotExist) {
			return true
		}
	}

	var execErr *exec.Error
	if errors.As(err, &execErr) {
		if errors.Is(execErr.Err, exec.ErrNotFound) {
			return true
		}
	}

	message := strings.ToLower(err.Error())
	return strings.Contains(message, "not found") || strings.Contains(message, "cannot find")
}
