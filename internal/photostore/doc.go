// Package photostore stores photo originals and their thumbnails.
//
// Files follow a fixed layout relative to the store root:
//
//	collection_<id>/entry_<id>/original/<photoId>_<filename>
//	collection_<id>/entry_<id>/thumbnails/<photoId>_<size>.jpg
//
// The layout is shared by every backend, so a filesystem tree can be synced
// to a bucket and read back unchanged. Image bytes are produced elsewhere;
// this package only places, opens and removes them.
package photostore
