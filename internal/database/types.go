package database

// Label identifies an enrollment subject. Name is the business key used by
// the enrollment registry; each label owns the image directory named after it.
type Label struct {
	ID   int64
	Name string
}

// Image is one persisted, already-validated face capture. Path is the
// absolute filesystem path of the stored frame.
type Image struct {
	ID      int64
	Path    string
	LabelID int64
}
