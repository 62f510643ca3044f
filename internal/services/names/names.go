// Package names holds the pool of display names handed out to joining players.
package names

import "github.com/mcoot/skyrace/internal/dependencies/random"

// Pool is the fixed set of display names
var Pool = []string{
	"Foo", "Bar", "Baz", "Qux", "Quux", "Plugh", "Xyzzy",
	"Hoge", "Fuga", "Piyo", "Hogera", "Hogehoge",
	"Toto", "Hede", "Hodo", "Pippo", "Pluto",
	"Spam", "Ham", "Eggs",
	"Alice", "Bob", "Charlie", "Eve",
}

// Pick returns a random name from the pool
func Pick(rnd random.Random) string {
	return Pool[rnd.Intn(len(Pool))]
}
