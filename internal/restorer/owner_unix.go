//go:build unix

package restorer

import (
	"os"
	"syscall"
)

// ownedBy reports whether info already has the wanted owner. A uid or gid of
// -1 matches anything.
func ownedBy(info os.FileInfo, uid, gid int) bool {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return false
	}

	return (uid < 0 || int(st.Uid) == uid) && (gid < 0 || int(st.Gid) == gid)
}
