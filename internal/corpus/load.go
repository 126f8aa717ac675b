package corpus

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/oxidoc/oxidoc/internal/config"
)

// LoadResult is everything one crate load produces.
type LoadResult struct {
	Name      string
	Version   string
	Build     *Build
	Docs      []ParsedDoc
	Reexports []Reexport
	FromCache bool
}

// Load obtains a crate's snapshot, disk cache first and docs.rs second, then
// runs the clean pass, strips private items, and flattens the result.
// Progress messages are reported through progress when it is non-nil.
func Load(name, version string, roots map[string]config.DocRootConfig, nightly bool, progress func(string)) (*LoadResult, error) {
	emit := func(format string, args ...interface{}) {
		if progress != nil {
			progress(fmt.Sprintf(format, args...))
		}
	}

	var snap *Snapshot
	fromCache := false
	if version != "" && HasSnapshotCache(name, version) {
		cached, err := LoadSnapshotCache(name, version)
		if err == nil {
			snap = cached
			fromCache = true
			emit("using cached snapshot for %s@%s", name, version)
		} else {
			emit("cached snapshot for %s@%s unreadable, refetching: %v", name, version, err)
		}
	}

	if snap == nil {
		emit("fetching snapshot for %s@%s", name, versionOrLatest(version))
		data, err := FetchSnapshot(name, version)
		if err != nil {
			return nil, err
		}
		snap, err = DecodeSnapshot(data)
		if err != nil {
			return nil, err
		}
		resolved := version
		if snap.CrateVersion != nil {
			resolved = *snap.CrateVersion
		}
		if resolved != "" {
			if err := SaveSnapshotCache(data, name, resolved); err != nil {
				emit("caching snapshot for %s@%s failed: %v", name, resolved, err)
			}
		}
	}

	emit("cleaning %s", name)
	build, err := BuildCrate(snap, roots, nightly)
	if err != nil {
		return nil, err
	}
	StripPrivate(build.Crate)

	result := &LoadResult{
		Name:      build.CrateName,
		Version:   build.Version,
		Build:     build,
		Docs:      build.Docs(),
		Reexports: build.Reexports(),
		FromCache: fromCache,
	}
	if result.Version == "" {
		result.Version = version
	}
	emit("flattened %d pages for %s@%s", len(result.Docs), result.Name, result.Version)
	return result, nil
}

func versionOrLatest(version string) string {
	if version == "" {
		return "latest"
	}
	return version
}

// CrateSpec names one crate to load.
type CrateSpec struct {
	Name    string
	Version string
}

// loadConcurrency bounds parallel snapshot fetches.
const loadConcurrency = 4

// LoadAll loads several crates concurrently. Results line up with specs;
// a failed crate leaves a nil slot and contributes its error to the return.
func LoadAll(ctx context.Context, specs []CrateSpec, roots map[string]config.DocRootConfig, nightly bool, progress func(string)) ([]*LoadResult, error) {
	results := make([]*LoadResult, len(specs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(loadConcurrency)
	for i, spec := range specs {
		i, spec := i, spec
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := Load(spec.Name, spec.Version, roots, nightly, progress)
			if err != nil {
				return fmt.Errorf("loading %s: %w", spec.Name, err)
			}
			results[i] = res
			return nil
		})
	}
	err := g.Wait()
	return results, err
}
