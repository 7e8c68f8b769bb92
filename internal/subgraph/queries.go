package subgraph

const poolQuery = `query pool($pool_id: ID!) {
  pools(where: {id: $pool_id}) {
    id
    tick
    sqrtPrice
    liquidity
    feeTier
    token0 { id symbol name decimals }
    token1 { id symbol name decimals }
  }
}`

const poolDayDataQuery = `query poolDayData($id: ID!) {
  poolDayDatas(where: {id: $id}) {
    date
    volumeUSD
  }
}`

const ticksQuery = `query ticks($pool_id: String!, $after: BigInt!, $hi: BigInt!, $first: Int!) {
  ticks(
    first: $first
    where: {pool: $pool_id, tickIdx_gt: $after, tickIdx_lte: $hi}
    orderBy: tickIdx
    orderDirection: asc
  ) {
    tickIdx
    liquidityNet
  }
}`
