// Package config loads vroute manifests.
//
// A manifest declares the route tree and the settings of the vroute
// command. It is read from vroute.yaml, vroute.yml or vroute.json at the
// project root, or from S3 with an s3://bucket/key source.
//
// # Manifest Structure
//
//	name: shop
//	router:
//	  maxRedirects: 5
//	inspect:
//	  addr: localhost:7070
//	routes:
//	  - name: home
//	    path: /
//	  - name: users
//	    path: /users
//	    children:
//	      - name: show
//	        path: /[id]
//	        params:
//	          id: number
//	      - name: list
//	        query: page=[?page]&sort=[?sort]
//	        params:
//	          page: number=1
//	          sort: validate:oneof=asc desc
//	  - name: legacy
//	    path: /old-users
//	    redirectTo: users.list
//
// # Param Types
//
//	string | number | boolean | uuid     primitives
//	regexp:<re>                          string fully matching re
//	validate:<tag>                       string checked by a validator tag
//	array:<type>                         comma separated list
//	<type>=<value>                       default value, decoded with <type>
//	?<type>                              optional
//
// # Usage
//
//	cfg, err := config.LoadFromWorkingDir()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	r, err := cfg.Router(router.WithLogger(logger))
package config
