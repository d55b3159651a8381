// Package tenantrag embeds the multi-tenant retrieval pipeline in a Go program
// without running the HTTP service.
//
// Every agent gets its own in-memory corpus. Requests pass the same gate as the
// service: credential check, subscription status, content safety and the rate
// limit. Redis is optional and only backs the rate limiter, audit trail and
// embedding cache.
//
//	client, _ := tenantrag.New(ctx,
//	    tenantrag.WithAgent("support-bot", "s3cret"),
//	    tenantrag.WithRedis("localhost:6379", ""),
//	)
//	defer client.Close()
//
//	_, _ = client.Ingest(ctx, "support-bot", "s3cret", policyText, "policy.txt")
//	ans, _ := client.Query(ctx, "support-bot", "s3cret", "how do refunds work?")
//	fmt.Println(ans.Text, ans.Confidence)
//
// Without WithEmbedder a deterministic hashing embedder is used, which needs no
// network access. Without WithReranker candidates are reranked by term overlap.
package tenantrag
