// Package parse extracts structured data from requests: query string pairs,
// named URL captures and a body value chosen by content type. Explode
// combines them so handlers receive the merged metadata and the parsed body
// instead of the raw request.
package parse
