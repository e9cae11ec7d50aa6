package dbsync

// Queries use the cardano-db-sync schema. Only constructs that postgres and
// sqlite both accept are used, so the fixtures in the tests run the same
// statements as a live db-sync database.

const latestBlockForEpochSQL = `
SELECT block.block_no
FROM block
WHERE block.epoch_no <= $1 AND block.slot_no IS NOT NULL AND block.block_no IS NOT NULL
ORDER BY block.slot_no DESC
LIMIT 1`

// unspent as of the given block, ordered chronologically
const utxosForAddressSQL = `
SELECT
	origin_tx.id,
	origin_tx.hash,
	tx_out."index",
	origin_block.block_no,
	origin_block.slot_no,
	origin_block.epoch_no,
	origin_tx.block_index,
	datum.bytes
FROM tx_out
INNER JOIN tx origin_tx       ON tx_out.tx_id = origin_tx.id
INNER JOIN block origin_block ON origin_tx.block_id = origin_block.id
LEFT JOIN datum               ON tx_out.data_hash = datum.hash
WHERE tx_out.address = $1 AND origin_block.block_no <= $2
AND NOT EXISTS (
	SELECT 1 FROM tx_in
	INNER JOIN tx consuming_tx       ON tx_in.tx_in_id = consuming_tx.id
	INNER JOIN block consuming_block ON consuming_tx.block_id = consuming_block.id
	WHERE tx_in.tx_out_id = tx_out.tx_id AND tx_in.tx_out_index = tx_out."index"
	AND consuming_block.block_no <= $2
)
ORDER BY origin_block.block_no, origin_tx.block_index, tx_out."index"`

const txInputsSQL = `
SELECT consumed_tx.hash, tx_in.tx_out_index
FROM tx_in
INNER JOIN tx consumed_tx ON tx_in.tx_out_id = consumed_tx.id
WHERE tx_in.tx_in_id = $1
ORDER BY tx_in.id`

// latest output holding the policy token minted up to the epoch
const tokenUtxoForEpochSQL = `
SELECT datum.bytes
FROM ma_tx_out
INNER JOIN multi_asset        ON ma_tx_out.ident = multi_asset.id
INNER JOIN tx_out             ON ma_tx_out.tx_out_id = tx_out.id
INNER JOIN tx origin_tx       ON tx_out.tx_id = origin_tx.id
INNER JOIN block origin_block ON origin_tx.block_id = origin_block.id
LEFT JOIN datum               ON tx_out.data_hash = datum.hash
WHERE multi_asset.policy = $1 AND multi_asset.name = $2 AND origin_block.epoch_no <= $3
ORDER BY origin_block.block_no DESC, origin_tx.block_index DESC
LIMIT 1`

const stakeDistributionSQL = `
SELECT pool_hash.hash_raw, SUM(epoch_stake.amount)
FROM epoch_stake
INNER JOIN pool_hash ON epoch_stake.pool_id = pool_hash.id
WHERE epoch_stake.epoch_no = $1
GROUP BY pool_hash.hash_raw`

const epochNonceSQL = `SELECT nonce FROM epoch_param WHERE epoch_no = $1`

// the epoch of the highest block at least security parameter blocks deep
const stableBlockEpochSQL = `
SELECT stable_block.epoch_no
FROM block
INNER JOIN block AS stable_block ON block.block_no - $1 = stable_block.block_no
WHERE block.block_no IS NOT NULL
ORDER BY block.block_no DESC
LIMIT 1`
