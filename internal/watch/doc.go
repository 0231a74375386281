// Package watch triggers work when LaTeX sources are saved.
//
// A SourceWatcher watches the directories holding the documents it was
// given rather than the files themselves, because most editors save by
// writing a temporary file and renaming it over the original. Saves of
// files with a watched extension are debounced per path, so a burst of
// writes produces one callback after the file has been quiet for the
// configured delay.
package watch
