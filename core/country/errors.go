package country

import "github.com/pkg/errors"

var errEmptyDirectory = errors.New("country directory is empty")
