// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

/*
Package models defines the JSON shapes of the HTTP API.

Every endpoint answers with an APIResponse envelope. Recommendation payloads
are recommend.Result values carried in Data; this package adds the health
and variant listings that have no counterpart in the engine.

Example success:

	{
	  "status": "success",
	  "data": {"variant": {"medium": "movies", "method": "tfidf"}, "recommendations": [...]},
	  "metadata": {"timestamp": "2026-01-12T09:30:00Z", "query_time_ms": 3, "request_id": "..."}
	}

Example error:

	{
	  "status": "error",
	  "data": null,
	  "metadata": {"timestamp": "2026-01-12T09:30:00Z"},
	  "error": {"code": "NOT_FOUND", "message": "title \"Heet\" not in catalog"}
	}
*/
package models
