// Package objstore abstracts the remote bucket holding raw log objects.
//
// The rest of the system depends only on the Capability surface (list, read,
// delete). S3 is the production driver; Memory backs tests. Fetcher layers
// bounded concurrent retrieval on top of any Capability
package objstore
