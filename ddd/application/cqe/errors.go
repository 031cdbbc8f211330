package cqe

import "errors"

var errSourceEscapes = errors.New("source path must stay inside the storage root")
