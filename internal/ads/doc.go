// Package ads provides ad CRUD operations for the Meta Marketing API.
// An ad binds an ad set to a creative.
package ads
