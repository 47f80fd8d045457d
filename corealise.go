/*
Copyright © 2018 the Cube authors.
This file is part of Cube.

Cube is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Cube is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with Cube.  If not, see <http://www.gnu.org/licenses/>.
*/

package cube

import (
	"context"

	"github.com/spatialmodel/cube/lazy"
	"github.com/spatialmodel/cube/ndarray"
)

// A DataOwner is any entity whose array payload is owned by a
// DataManager. Cube implements it; coordinate points and bounds take
// part through CoRealiseManagers.
type DataOwner interface {
	DataManager() *DataManager
}

// CoRealise realises the payloads of all the given entities in a
// single batch. Entities already holding real data are left untouched;
// the lazy payloads of the rest are executed in one scheduling pass,
// so upstream computation shared between them (for example one
// on-disk variable feeding several cubes) runs exactly once for the
// whole batch. Results are written back to each owning manager in
// input order. This is the mechanism multi-cube saves and cross-cube
// comparisons use to avoid reading a backing file once per consumer.
func CoRealise(ctx context.Context, owners ...DataOwner) error {
	managers := make([]*DataManager, len(owners))
	for i, o := range owners {
		managers[i] = o.DataManager()
	}
	return CoRealiseManagers(ctx, managers...)
}

// CoRealiseManagers is CoRealise over bare managers, for callers
// holding coordinate points or bounds managers directly.
func CoRealiseManagers(ctx context.Context, managers ...*DataManager) error {
	var pending []*DataManager
	var batch []*lazy.Array
	for _, m := range managers {
		if m == nil || !m.HasLazyData() {
			// Already real or dataless: realising would at best be a
			// no-op and at worst recompute something already concrete.
			continue
		}
		if err := m.guard(); err != nil {
			return err
		}
		pending = append(pending, m)
		batch = append(batch, m.lazyArray)
	}
	if len(batch) == 0 {
		return nil
	}
	results, err := lazy.CoRealise(ctx, batch)
	if err != nil {
		return err
	}
	for i, m := range pending {
		m.realArray = m.applyRealisedDtype(results[i])
		m.lazyArray = nil
		m.realisedDtype = ndarray.Invalid
		m.shape = nil
		if err := m.assertAxioms(); err != nil {
			return err
		}
	}
	return nil
}
