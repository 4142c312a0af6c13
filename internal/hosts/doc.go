// Package hosts classifies link URLs against declarative host tables.
//
// A Table lists regular-expression rules per link family, each with a
// priority weight:
//
//	first_tier:      "view" wrapper pages that link to cloud pages
//	second_tier:     "cloud" wrapper pages that link to files
//	id_hosters:      hosters serving files behind an opaque token
//	direct:          object storage, worker CDNs and other direct file hosts
//
// Tables can be overridden from YAML without a rebuild:
//
//	second_tier:
//	  - name: hubcloud
//	    pattern: 'hubcloud\.[a-z]+/(drive|video)/'
//	    weight: 100
//	weights:
//	  download_class: 100
//
// Sections present in the file replace the built-in section; absent sections
// keep the defaults.
package hosts
