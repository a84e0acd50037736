package gitbackend

import (
	git2go "github.com/libgit2/git2go/v31"

	"lab.nexedi.com/kirr/codelauf/internal/gitid"
)

func toOid(id gitid.Sha1) *git2go.Oid {
	var oid git2go.Oid
	copy(oid[:], id.Bytes())
	return &oid
}

func fromOid(oid *git2go.Oid) gitid.Sha1 {
	id, _ := gitid.Sha1FromBytes(oid[:])
	return id
}
