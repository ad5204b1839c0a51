package wire

import "github.com/rascol/lpximage"

// errProtocol aliases lpx.ErrProtocol so codec.go's error wrapping reads
// naturally; spec.md section 7 treats ProtocolError identically to
// ClientIoError at the call site, so callers of DecodeMovementCommand
// that want that equivalence can check errors.Is(err, lpx.ErrProtocol).
var errProtocol = lpx.ErrProtocol
