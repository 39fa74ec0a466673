/*
Package sqldataset provides an implementation of dataset.Dataset
that uses an SQL database as backend.

The dataset uses a single steps table, with one row per interaction
step holding:
  * The student and the position of the step in their sequence
  * The problem and the result of the step
  * A JSON payload with the concept vectors, the previous result
    feature and the code of the step

Database specifics are handled by an Adapter, see the sqlite3adapter
and pgadapter packages.
*/
package sqldataset
