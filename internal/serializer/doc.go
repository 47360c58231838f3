// Package serializer converts domain resources into JSON:API documents:
// sparse fieldsets, relationship linkage, compound-document inclusion with
// {type,id} deduplication, and pagination links. Serialization is
// deterministic: the same input and parameters always produce the same
// bytes.
package serializer
