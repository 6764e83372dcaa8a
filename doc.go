// Package semindex embeds documents and runs semantic search in-process,
// without the HTTP server.
//
//	client, _ := semindex.New(ctx,
//	    semindex.WithMemory(),
//	    semindex.WithEmbedder("openai", "text-embedding-3-small", myEmbedder),
//	    semindex.WithCollection("articles", "title", "body"),
//	)
//	defer client.Close()
//
//	_, _, _ = client.Upsert(ctx, "articles", "a1", map[string]any{"title": "Cats"})
//	hits, _ := client.Search(ctx, "articles", "tell me about cats", semindex.Limit(5))
package semindex
