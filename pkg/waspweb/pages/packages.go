package pages

import (
	"context"
	"errors"
	"sort"

	"github.com/waspscripts/wasp-web/pkg/waspweb"
	"github.com/waspscripts/wasp-web/pkg/waspweb/objectkey"
)

// PackageVersions lists the released versions of a package, newest first.
// Versions are the first path segment below the package's prefix in the
// packages bucket; a version's date is that of its newest file.
func (a *Assembler) PackageVersions(ctx context.Context, name string) ([]waspweb.PackageVersion, error) {
	pkg, err := a.repository.GetPackage(ctx, name)
	if err != nil {
		if errors.Is(err, waspweb.ErrPackageNotFound) {
			return nil, waspweb.NotFound("Package not found!", err)
		}
		return nil, serverError("SELECT packages", err)
	}
	if a.packages == nil {
		return nil, waspweb.Upstream("Packages storage is not configured!", waspweb.ErrBucketNotFound)
	}

	objects, err := a.packages.List(ctx, objectkey.PackagePrefix(pkg.Name))
	if err != nil {
		a.logger.Error("Failed to list package versions", "package", pkg.Name, "err", err)
		return nil, waspweb.Upstream("Failed to list package versions!", &waspweb.StorageError{
			Bucket: waspweb.BucketPackages,
			Key:    objectkey.PackagePrefix(pkg.Name),
			Op:     "list",
			Err:    err,
		})
	}

	index := map[string]int{}
	versions := []waspweb.PackageVersion{}
	for _, obj := range objects {
		version, ok := objectkey.PackageVersion(pkg.Name, obj.Key)
		if !ok {
			continue
		}
		if i, seen := index[version]; seen {
			if obj.UpdatedAt.After(versions[i].Updated) {
				versions[i].Updated = obj.UpdatedAt
			}
			continue
		}
		index[version] = len(versions)
		versions = append(versions, waspweb.PackageVersion{Version: version, Updated: obj.UpdatedAt})
	}

	sort.SliceStable(versions, func(i, j int) bool {
		if versions[i].Updated.Equal(versions[j].Updated) {
			return versions[i].Version > versions[j].Version
		}
		return versions[i].Updated.After(versions[j].Updated)
	})
	return versions, nil
}
