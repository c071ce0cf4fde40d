package hooks

import "errors"

var errTest = errors.New("hub unreachable")
