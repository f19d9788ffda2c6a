package wadmap

import "github.com/pkg/errors"

// Errors returned by the package. Fatal load errors wrap one of these.
var (
	ErrBadMagic     = errors.New("bad wad magic")
	ErrShortRead    = errors.New("short read")
	ErrRecordSize   = errors.New("lump size is not a multiple of the record size")
	ErrMissingLump  = errors.New("mandatory lump missing")
	ErrUnknownLevel = errors.New("level not found")
	ErrBadVertex    = errors.New("line references a nonexistent vertex")
	ErrNoSectors    = errors.New("level has no sectors")
	ErrTextMap      = errors.New("malformed TEXTMAP")
	ErrNoBSP        = errors.New("level has no accepted BSP tree")
	ErrBadBlockmap  = errors.New("invalid blockmap")
)
