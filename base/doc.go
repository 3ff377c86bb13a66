/*

Package base provides base data structures and functions for teasel.

The base data structures and functions include:

* Random Generator

* Nearest Neighbor Heap

* Numeric Helpers

*/
package base
