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

import "errors"

// An InvalidStateError reports an impossible data-manager state: either
// an invalid construction request, or a violation of the internal
// payload axioms after a mutation. The latter indicates a logic error
// in this library rather than bad input, and callers should treat it
// as fatal to the operation in progress.
type InvalidStateError string

func (e InvalidStateError) Error() string { return "cube: " + string(e) }

// ErrShallowCopy is returned by any method invoked on a shallow
// (struct) copy of a DataManager. A shallow copy would alias the
// managed payload between two supposedly independent managers, so it
// is forbidden; use DataManager.Copy instead.
var ErrShallowCopy = errors.New(
	"cube: shallow copy of a DataManager is not permitted; use DataManager.Copy instead")
