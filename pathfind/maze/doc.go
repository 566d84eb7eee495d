// Package maze describes grids as JSON configuration files.
//
// A maze file holds a square text layout plus the defaults a search should
// use on it:
//
//	{
//	  "name": "Classic",
//	  "description": "Walls with a single gap",
//	  "grid_size": 5,
//	  "layout": ["S.#..", "..#..", ".....", "..#..", "..#.G"],
//	  "heuristic": "diagonal",
//	  "policy": "permissive"
//	}
//
// Layout characters are '.' (open), '#' (blocked), 'S' (start) and
// 'G' (goal). Exactly one start and one goal are required. Build turns a
// validated Config into a grid with its neighbor lists already computed.
package maze
