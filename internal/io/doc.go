// Package ioutils provides file system and image processing utilities.
//
// # File Operations
//
//	// Gate a download on presence
//	if ioutils.FileExists("images/21.jpg") {
//	    return
//	}
//
//	// Write without ever exposing a partial file
//	err := ioutils.WriteFileAtomic("images/21.jpg", data)
//
//	// Ensure directory exists
//	err := ioutils.EnsureDir("images")
//
// # Image Processing
//
// The ImageService optionally normalizes downloaded assets:
//
//	svc := ioutils.NewImageService()
//
//	// Convert PNG/GIF/WebP to JPEG, shrinking to fit 500x500
//	jpeg, _ := svc.Normalize(ctx, data, 500)
package ioutils
