package block

import "errors"

// ErrInvalidBlockSize indicates a BlockAt block size outside 1..MaxLevel.
var ErrInvalidBlockSize = errors.New("block: block size out of range")
