// Package loader decodes snapshot files into in-memory datasets.
//
// A parquet file is read whole through Apache Arrow: the file is opened as a
// random-access reader, converted to an Arrow table, and every record batch is
// copied into positional Go rows. Column types are derived from the Arrow
// schema so warehouse backends can create matching tables.
//
// Values are copied out of Arrow buffers before the table is released, so a
// returned Dataset owns its memory and stays valid after Read returns.
package loader
