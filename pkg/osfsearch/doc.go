// Package osfsearch embeds the OSF search synchronization stack in a host
// process: the website calls the hooks in-process instead of over HTTP.
//
// The client owns an entity store (in-memory by default, Redis with
// WithRedis) and a search engine (Elasticsearch with WithElastic, bleve
// otherwise).
//
//	client, _ := osfsearch.New(ctx, osfsearch.WithBleveInMemory())
//	defer client.Close()
//
//	_, _ = client.SaveNode(ctx, &osfsearch.Node{ID: "abc12", Title: "Foo", Category: "project", IsPublic: true})
//	res, _ := client.Search(ctx, osfsearch.Query{Term: "Foo", Size: 10})
//
// Engine failures surface as one of ErrSearchUnavailable, ErrIndexNotFound,
// ErrMalformedQuery or ErrSearch; check them with errors.Is.
package osfsearch
