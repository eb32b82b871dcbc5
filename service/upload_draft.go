package service

import (
	"io"
	"slices"
)

// FileInput is the selected file handle for an upload.
type FileInput struct {
	Name        string
	Size        int64
	ContentType string
	Reader      io.Reader
}

// Draft holds the upload form state ahead of the save sequence.
type Draft struct {
	CourseCode  string
	Type        string
	Description string
	Tags        []string
	Department  string
	Faculty     string
	Level       string
	Price       int64

	File      *FileInput
	LastError string
}

// AddTag is a no-op for duplicates.
func (d *Draft) AddTag(tag string) {
	if slices.Contains(d.Tags, tag) {
		return
	}
	d.Tags = append(d.Tags, tag)
}

func (d *Draft) RemoveTag(tag string) {
	idx := slices.Index(d.Tags, tag)
	if idx < 0 {
		return
	}
	d.Tags = slices.Delete(d.Tags, idx, idx+1)
}

func (d *Draft) SetTags(tags []string) {
	d.Tags = tags
}

// SetFile selects the file and clears any prior upload error.
func (d *Draft) SetFile(file *FileInput) {
	d.File = file
	d.LastError = ""
}

// Reset restores the empty defaults.
func (d *Draft) Reset() {
	*d = Draft{}
}
