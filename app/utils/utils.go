package utils

import (
	"crypto/sha1"
	"encoding/hex"

	"github.com/xlab/treeprint"
)

// HashID derives a short stable document id from an arbitrary string, such as
// an ingested URL.
func HashID(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:8])
}

// BuildCorpusTree renders the indexed corpus as a document → chunk tree.
// docIDs fixes the branch order; chunks maps each document to its chunk ids.
func BuildCorpusTree(docIDs []string, chunks map[string][]string) string {
	tree := treeprint.New()
	tree.SetValue("corpus")
	for _, docID := range docIDs {
		branch := tree.AddBranch(docID)
		for _, chunkID := range chunks[docID] {
			branch.AddNode(chunkID)
		}
	}
	return tree.String()
}
