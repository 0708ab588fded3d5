// Command golife runs Conway's Game of Life on the GPU.
//
// With no flags it opens a window. Space plays or pauses, Right or N steps
// while paused, R randomises, C clears, Up and Down change the rate and
// Escape quits. Drag with the left button to paint cells.
//
// With -headless it runs a fixed number of generations without a window,
// optionally writing per-generation statistics (-csv) and an animation
// (-gif).
//
// Built for js/wasm it renders into the page's canvas with id "life" on the
// software backend and exports playPause, stepForward, randomiseState,
// updateFps and resetState on the global object.
package main
