package teamdata

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingTeams is the sentinel kind matched by MissingTeamsError.
var ErrMissingTeams = errors.New("teams missing from dataset")

// MissingTeamsError names the requested team numbers absent from the dataset,
// in request order.
type MissingTeamsError struct {
	Missing []int
}

func (e *MissingTeamsError) Error() string {
	parts := make([]string, len(e.Missing))
	for i, n := range e.Missing {
		parts[i] = fmt.Sprint(n)
	}
	return fmt.Sprintf("%s: %s", ErrMissingTeams, strings.Join(parts, ", "))
}

// Is lets errors.Is match ErrMissingTeams.
func (e *MissingTeamsError) Is(target error) bool {
	return target == ErrMissingTeams
}
