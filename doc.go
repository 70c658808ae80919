/*
Package substrate implements a document-oriented persistent store on top of
an ordered key-value backend (LSM-style engines such as goleveldb, or bbolt,
or an in-memory B-tree for tests).

We implement:

1. Snapshots, immutable point-in-time read views of the whole store.

2. Forks, transaction contexts that accumulate speculative writes in a
changelog with nested checkpoints, finalized into immutable Patches and
merged atomically.

3. Typed indexes — Entry, MapIndex, ListIndex, SetIndex — composed into
hierarchical groups, all mapped onto the flat keyspace without collisions.

4. Online migrations that rewrite indexes into a new layout in a scratch
namespace while foreground traffic continues, with a crash-safe cursor and
an atomic cut-over.

# Technical Details

**Keyspace.**
The backend stores one flat keyspace. Each index address (a path of group
segments plus an index name) is assigned a never-reused numeric prefix id,
recorded in a registry kept in a reserved corner of the same keyspace. A
physical key is the data kind byte, the fixed-width prefix id, and the
index's own intra-key. Because the registry rides in the same patches as
data, renaming an index's backing prefix — which is how a migration
cut-over works — is a one-key write with full snapshot isolation.

**Merges.**
A merge applies one Patch as a single atomic backend batch. Merges are
serialized by a mutex; snapshots and forks never take it, so readers are
never blocked by writers.

**Clears.**
Clearing an index records a single prefix tombstone in the changelog. The
tombstone is expanded into per-key deletes when the patch is built, since
the supported backends lack a range-tombstone primitive; the clear is still
observably atomic, and the changelog stays O(1) per clear.
*/
package substrate
